package terminal

import (
	"fmt"
	"io"

	"github.com/jlaffaye/ftp"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// TableFormatter renders remote directory listings as a table.
type TableFormatter struct {
	out io.Writer
}

// NewTableFormatter creates a table formatter writing to out.
func NewTableFormatter(out io.Writer) *TableFormatter {
	return &TableFormatter{out: out}
}

// FormatRemoteListing renders an FTP directory listing.
func (tf *TableFormatter) FormatRemoteListing(entries []*ftp.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(tf.out, "Directory is empty")
		return nil
	}

	table := tablewriter.NewWriter(tf.out)
	table.Header("Name", "Type", "Size", "Modified")
	table.Options(
		tablewriter.WithRendition(tw.Rendition{Borders: tw.Border{Left: tw.Pending, Right: tw.Pending, Top: tw.Pending, Bottom: tw.Pending}}),
		tablewriter.WithPadding(tw.Padding{Left: "\t", Right: "\t"}),
	)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.MaxWidth = 0
		cfg.Header = tw.CellConfig{
			Alignment: tw.CellAlignment{
				Global: tw.AlignLeft,
			},
		}
		cfg.Row = tw.CellConfig{
			Alignment: tw.CellAlignment{
				Global: tw.AlignLeft,
			},
		}
	})

	for _, entry := range entries {
		name := entry.Name
		size := formatSize(entry.Size)
		if entry.Type == ftp.EntryTypeFolder {
			name = name + "/"
			size = "-"
		}

		table.Append([]string{
			name,
			entry.Type.String(),
			size,
			entry.Time.Format("Jan 02 15:04"),
		})
	}

	return table.Render()
}

// formatSize formats a file size in human-readable form.
func formatSize(size uint64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := uint64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
