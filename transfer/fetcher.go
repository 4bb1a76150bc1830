package transfer

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/jlaffaye/ftp"

	"github.com/martinfed/open-bus/config"
)

// Anonymous FTP credentials used for the public MOT server.
const (
	anonymousUser = "anonymous"
	anonymousPass = ""
)

// Fetcher performs a single anonymous FTP download of the GTFS archive.
// Every invocation opens its own connection; nothing is pooled or reused.
type Fetcher struct {
	Endpoint config.Endpoint

	// ShowProgress enables the live progress line on stdout.
	ShowProgress bool

	// DebugOutput receives the raw FTP command trace when set.
	DebugOutput io.Writer
}

// NewFetcher creates a fetcher for the given endpoint.
func NewFetcher(endpoint config.Endpoint) *Fetcher {
	return &Fetcher{Endpoint: endpoint}
}

// connect dials the server, logs in anonymously and switches to binary
// transfer type. The returned connection uses passive mode for data
// transfers. The caller owns the connection and must Quit it.
func (f *Fetcher) connect() (*ftp.ServerConn, error) {
	opts := []ftp.DialOption{
		ftp.DialWithTimeout(f.Endpoint.Timeout),
	}
	if f.DebugOutput != nil {
		opts = append(opts, ftp.DialWithDebugOutput(f.DebugOutput))
	}

	client, err := ftp.Dial(f.Endpoint.Addr(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", f.Endpoint.Addr(), err)
	}

	if err := client.Login(anonymousUser, anonymousPass); err != nil {
		client.Quit()
		return nil, fmt.Errorf("failed to login to %s: %v", f.Endpoint.Host, err)
	}

	// Login already negotiates TYPE I, but the archive must never go
	// through ASCII translation, so set it explicitly.
	if err := client.Type(ftp.TransferTypeBinary); err != nil {
		client.Quit()
		return nil, fmt.Errorf("failed to set binary mode on %s: %v", f.Endpoint.Host, err)
	}

	return client, nil
}

// Fetch downloads the archive into a freshly created temporary file and
// returns its path. The caller owns the file afterwards and is responsible
// for removing it; a failed transfer may also leave the file behind.
func (f *Fetcher) Fetch() (string, error) {
	tmp, err := os.CreateTemp("", "gtfs-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %v", err)
	}

	if err := f.FetchTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// FetchTo downloads the archive into the given local path. The destination
// is only opened once the server has accepted the RETR request, so a
// missing remote file leaves a pre-existing destination untouched.
func (f *Fetcher) FetchTo(path string) error {
	client, err := f.connect()
	if err != nil {
		return err
	}
	defer client.Quit()

	remote := f.Endpoint.RemoteFile

	// Best-effort size probe so progress can show a percentage. Servers
	// without SIZE support just get an indeterminate progress line.
	totalBytes := int64(-1)
	if size, err := client.FileSize(remote); err == nil {
		totalBytes = size
	}

	resp, err := client.Retr(remote)
	if err != nil {
		return fmt.Errorf("failed to download %s from %s: %v", remote, f.Endpoint.Host, err)
	}
	defer resp.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}

	writer := bufio.NewWriterSize(out, copyBufferSize)
	copyErr := copyWithProgress(resp, writer, totalBytes, f.ShowProgress)
	if copyErr == nil {
		copyErr = writer.Flush()
	}
	if err := out.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return fmt.Errorf("failed to download %s from %s: %v", remote, f.Endpoint.Host, copyErr)
	}

	// Close reads the transfer completion reply; a non-positive code here
	// means the server did not finish the transfer cleanly.
	if err := resp.Close(); err != nil {
		return fmt.Errorf("failed to download %s from %s: %v", remote, f.Endpoint.Host, err)
	}

	return nil
}

// List returns the directory listing of the server's login directory,
// where the MOT drop keeps the GTFS archive and its companion files.
func (f *Fetcher) List() ([]*ftp.Entry, error) {
	client, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer client.Quit()

	entries, err := client.List("")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %v", f.Endpoint.Host, err)
	}
	return entries, nil
}
