package service

import (
	"fmt"

	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// validationError оборачивает ErrValidation сообщением для клиента
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}
