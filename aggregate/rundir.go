package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// TimestampLayout names result directories (month.day-hour_minute_second).
const TimestampLayout = "01.02-15_04_05"

const maxDirAttempts = 1000

// CreateRunDir creates <root>/<experiment>/<timestamp>/ and returns its path.
// When a directory for the same second already exists a numeric suffix is
// added, so two runs never share a directory.
func CreateRunDir(root, experiment string, now time.Time) (string, error) {
	parent := filepath.Join(root, experiment)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create results directory")
	}

	base := filepath.Join(parent, now.Format(TimestampLayout))
	dir := base
	for i := 1; i <= maxDirAttempts; i++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrap(err, "failed to create run directory")
		}
		dir = fmt.Sprintf("%s-%d", base, i)
	}
	return "", errors.Errorf("no free run directory for %s", base)
}
