package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает сборочную информацию, заполняемую через -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// String возвращает сборочную информацию одной строкой.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
