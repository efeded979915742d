package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// ReadBodyLimit1MB is the default maximum size of a JSON request body.
const ReadBodyLimit1MB = 1024 * 1024

// chunkSize is the size of each chunk read from the request body.
const chunkSize = 16 * 1024

// limitedBytesReader reads a request body while enforcing a size limit.
type limitedBytesReader struct {
	bytes     []byte
	readLimit int64
}

// Read returns the whole body, or BodySizeLimitExceededError once more than readLimit
// bytes were read.
func (l *limitedBytesReader) Read() ([]byte, error) {
	if len(l.bytes) == 0 {
		return nil, NewEmptyRequestBodyError()
	}

	reader := io.LimitReader(bytes.NewReader(l.bytes), l.readLimit+1)
	buff := bytes.NewBuffer(nil)
	bb := make([]byte, chunkSize)
	var read int64

	for {
		n, err := reader.Read(bb)
		if n > 0 {
			read += int64(n)
			if read > l.readLimit {
				return nil, NewBodySizeLimitExceededError(l.readLimit)
			}
			if _, err := buff.Write(bb[:n]); err != nil {
				return nil, NewBodyReadError(err)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, NewBodyReadError(err)
		}
	}
	return buff.Bytes(), nil
}

// LimitJSONBodyMiddleware rejects JSON request bodies that are empty or larger than limit.
// Requests with other content types pass through.
func LimitJSONBodyMiddleware(limit int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !c.Is("json") {
			return c.Next()
		}

		reader := limitedBytesReader{
			bytes:     c.Body(),
			readLimit: limit,
		}

		bb, err := reader.Read()
		if err != nil {
			return err
		}

		c.Context().SetBody(bb)
		return c.Next()
	}
}

// NewBodySizeLimitExceededError is returned when the request body exceeds limit bytes.
func NewBodySizeLimitExceededError(limit int64) app.Error {
	msg := fmt.Sprintf("The submitted request body exceeds the maximum allowed size: %d bytes.", limit)
	return app.NewIncorrectInputError(msg, msg)
}

// NewBodyReadError is returned when the request body could not be read.
func NewBodyReadError(err error) app.Error {
	return app.NewRawDataProcessingError(
		err.Error(),
		"Unable to read the request body. Please verify the request content and try again later.",
	)
}

// NewEmptyRequestBodyError is returned for JSON requests without a body.
func NewEmptyRequestBodyError() app.Error {
	const msg = "Unable to process the request. The request body is empty."
	return app.NewIncorrectInputError(msg, msg)
}
