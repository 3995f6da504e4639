package logging

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// levelFilePattern is the strftime pattern of one level's file below the log directory
const levelFilePattern = "%Y-%m-%d"

// newLevelFile returns a writer appending to {dir}/{yyyy-mm-dd}/{level}.log.
// It switches file at midnight and prunes this level's files older than maxAgeDays
// on every switch; zero or a negative maxAgeDays keeps everything.
func newLevelFile(dir, level string, maxAgeDays int, clock rotatelogs.Clock) (*rotatelogs.RotateLogs, error) {
	opts := []rotatelogs.Option{
		rotatelogs.WithRotationTime(24 * time.Hour),
		rotatelogs.WithClock(clock),
	}
	if maxAgeDays > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(maxAgeDays)*24*time.Hour))
	} else {
		// rotatelogs always prunes by age or count; a count that is never reached keeps every file
		opts = append(opts, rotatelogs.WithRotationCount(math.MaxUint32))
	}

	w, err := rotatelogs.New(filepath.Join(dir, levelFilePattern, level+".log"), opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s log: %w", level, err)
	}
	return w, nil
}
