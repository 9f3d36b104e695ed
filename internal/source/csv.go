package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// CSVOptions controls CSV loading. The zero value sniffs the delimiter and
// sizes the read buffer from the file size.
type CSVOptions struct {
	Delimiter rune // 0 means detect from a sample
	MaxRows   int  // 0 means read every row
}

// detectDelimiter picks the most frequent candidate delimiter in the first
// few lines of a sample.
func detectDelimiter(sample []byte) rune {
	delimCounts := map[rune]int{
		',':  0,
		';':  0,
		'\t': 0,
		'|':  0,
	}

	lines := 0
	for i := 0; i < len(sample) && lines < 5; i++ {
		if sample[i] == '\n' || sample[i] == '\r' {
			lines++
		}

		for delim := range delimCounts {
			if sample[i] == byte(delim) {
				delimCounts[delim]++
			}
		}
	}

	maxCount := 0
	bestDelim := ','
	for delim, count := range delimCounts {
		if count > maxCount {
			maxCount = count
			bestDelim = delim
		}
	}

	return bestDelim
}

// readBufferSize scales the read buffer with the file size.
func readBufferSize(size int64) int {
	switch {
	case size > 50*1024*1024: // > 50MB
		return 1024 * 1024
	case size > 10*1024*1024: // > 10MB
		return 256 * 1024
	default:
		return 64 * 1024
	}
}

const sniffSampleSize = 8 * 1024

// LoadCSV reads a CSV file into a DataSource. The first record is the
// header. Blank fields become missing cells and column types are inferred.
func LoadCSV(path string, opts CSVOptions) (*DataSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, "open failed", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, loadError(path, "stat failed", err)
	}

	delim := opts.Delimiter
	if delim == 0 {
		sample := make([]byte, sniffSampleSize)
		n, err := file.Read(sample)
		if err != nil && err != io.EOF {
			return nil, loadError(path, "sample read failed", err)
		}
		window := sample[:n]
		// A full sample can end mid-rune; drop partial trailing bytes
		// before validating.
		if n == sniffSampleSize {
			for i := 0; i < utf8.UTFMax-1 && len(window) > 0 && !utf8.Valid(window); i++ {
				window = window[:len(window)-1]
			}
		}
		if !utf8.Valid(window) {
			return nil, loadError(path, "file is not valid UTF-8", nil)
		}
		delim = detectDelimiter(window)
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, loadError(path, "seek failed", err)
		}
	}

	reader := csv.NewReader(bufio.NewReaderSize(file, readBufferSize(info.Size())))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, loadError(path, "file is empty", nil)
	}
	if err != nil {
		return nil, loadError(path, "header read failed", err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, loadError(path, fmt.Sprintf("record read failed near row %d", len(records)+2), err)
		}
		records = append(records, record)
		if opts.MaxRows > 0 && len(records) >= opts.MaxRows {
			break
		}
	}

	return FromRecords(path, header, records)
}
