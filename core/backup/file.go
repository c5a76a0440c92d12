package backup

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/hafizlab/alfurqan/core/errors"
)

// Container format: one plain-JSON header line, then the xz-compressed
// JSON document. The header stays uncompressed so a truncated or
// corrupted file is identifiable without decompressing anything, and
// its checksum covers the uncompressed document bytes.
const (
	headerMagic   = "alfurqan-backup"
	headerVersion = 1
)

type fileHeader struct {
	Magic    string `json:"magic"`
	Version  int    `json:"version"`
	Checksum string `json:"checksum"` // BLAKE3-256 of the uncompressed document JSON, hex
}

// WriteFile serializes a document into the on-disk container at path.
func WriteFile(path string, doc *Document) error {
	if doc == nil {
		return errors.NewValidation("document", "document required")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	sum := blake3.Sum256(payload)
	header, err := json.Marshal(fileHeader{
		Magic:    headerMagic,
		Version:  headerVersion,
		Checksum: hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return errors.Wrap(err, "encode header")
	}

	var buf bytes.Buffer
	buf.Write(header)
	buf.WriteByte('\n')
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return errors.Wrap(err, "create compressor")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "compress document")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "compress document")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "write backup file")
	}
	return nil
}

// ReadFile loads a container from path, verifies the checksum and
// returns the document. A checksum mismatch or a malformed header is a
// validation error, not a storage error: the file is the bad input.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open backup file")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return nil, errors.NewValidation("file", "missing container header")
	}
	var header fileHeader
	if err := json.Unmarshal(headerLine, &header); err != nil {
		return nil, errors.NewValidation("file", "malformed container header")
	}
	if header.Magic != headerMagic {
		return nil, errors.NewValidation("file", "not a backup file")
	}
	if header.Version != headerVersion {
		return nil, errors.NewValidation("file",
			fmt.Sprintf("unsupported container version %d", header.Version))
	}

	r, err := xz.NewReader(br)
	if err != nil {
		return nil, errors.NewValidation("file", "malformed compressed payload")
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewValidation("file", "malformed compressed payload")
	}

	sum := blake3.Sum256(payload)
	if hex.EncodeToString(sum[:]) != header.Checksum {
		return nil, errors.NewValidation("file", "checksum mismatch")
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, errors.NewValidation("file", "malformed document payload")
	}
	return &doc, nil
}
