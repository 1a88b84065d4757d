package transport

import "mime"

func parseMediaType(contentType string) (string, map[string]string, error) {
	return mime.ParseMediaType(contentType)
}
