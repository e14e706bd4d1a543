package database

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Image payloads cross the store boundary as base64 data URIs and are held
// as binary inside. Decoding happens exactly once on write, re-encoding
// exactly once on read.

const defaultMime = "image/jpeg"

func decodeDataURI(uri string) (mime string, data []byte, err error) {
	const marker = ";base64,"
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, errors.New("image payload is not a data URI")
	}
	i := strings.Index(uri, marker)
	if i < 0 {
		return "", nil, errors.New("image payload is not base64 encoded")
	}
	mime = uri[len("data:"):i]
	if mime == "" {
		mime = defaultMime
	}
	data, err = base64.StdEncoding.DecodeString(uri[i+len(marker):])
	if err != nil {
		return "", nil, fmt.Errorf("decode image payload: %w", err)
	}
	return mime, data, nil
}

func encodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = defaultMime
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
