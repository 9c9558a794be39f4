package utils

import (
	"net/http"
)

// contentTypeSniffLimit caps the bytes handed to http.DetectContentType,
// which never looks past the first 512 bytes.
const contentTypeSniffLimit = 512

// SniffContentType names the detected content type of a byte slice. The
// ingester uses it to label files rejected for invalid UTF-8, so encoding
// warnings say what the file actually looks like.
func SniffContentType(data []byte) string {
	if len(data) > contentTypeSniffLimit {
		data = data[:contentTypeSniffLimit]
	}
	return http.DetectContentType(data)
}
