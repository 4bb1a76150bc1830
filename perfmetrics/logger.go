package perfmetrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CsvHeader defines the CSV header for fetch logging.
const CsvHeader = "Timestamp,Host,FileName,SizeMB,ThroughputMBps,TimeSec,Destination\n"

// FetchRecord describes one completed archive download.
type FetchRecord struct {
	Host        string
	FileName    string
	SizeBytes   int64
	Elapsed     time.Duration
	Destination string
}

// LogFetchToCSV appends a fetch record to the CSV file at filePath,
// creating the file and its directory with a header when missing.
func LogFetchToCSV(filePath string, record FetchRecord) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	fileExists := true
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %v", filePath, err)
	}
	defer file.Close()

	if !fileExists {
		if _, err := file.WriteString(CsvHeader); err != nil {
			return fmt.Errorf("failed to write header: %v", err)
		}
	}

	elapsed := record.Elapsed
	if elapsed == 0 {
		elapsed = time.Millisecond
	}
	sizeMB := float64(record.SizeBytes) / (1024 * 1024)
	throughput := sizeMB / elapsed.Seconds()

	writer := csv.NewWriter(file)
	row := []string{
		time.Now().Format(time.RFC3339),
		record.Host,
		record.FileName,
		strconv.FormatFloat(sizeMB, 'f', 2, 64),
		strconv.FormatFloat(throughput, 'f', 2, 64),
		strconv.FormatFloat(elapsed.Seconds(), 'f', 2, 64),
		record.Destination,
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV record: %v", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %v", err)
	}

	return nil
}
