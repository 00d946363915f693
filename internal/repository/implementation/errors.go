package implementation

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/jackc/pgx/v5/pgconn"
)

// classifyError marks connectivity failures as ErrIndexUnavailable so callers
// can fail the whole ingestion run. Query errors pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", vectorindex.ErrIndexUnavailable, err)
	}
	return err
}

func isUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err)
}
