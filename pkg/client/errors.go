package client

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"google.golang.org/grpc/status"

	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// translate is the single point where transport and I/O failures become
// domain errors. Errors that already carry a Kind pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *idberrors.Error
	if errors.As(err, &de) {
		return err
	}
	if _, ok := status.FromError(err); ok {
		return idberrors.Wrap(idberrors.KindTransportFailed, err, "")
	}
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return idberrors.Wrap(idberrors.KindTransportFailed, err, "stream terminated early")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return idberrors.Wrap(idberrors.KindTransportFailed, err, "")
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return idberrors.Wrap(idberrors.KindInvalidSource, err, "read "+pe.Path)
	}
	return idberrors.Wrap(idberrors.KindTransportFailed, err, "")
}
