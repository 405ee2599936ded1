package logpack

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	singleLogger *LogPack
	once         sync.Once
)

type LogPack struct {
	Info  *log.Logger
	Err   *log.Logger
	Fatal *log.Logger
}

// NewLogger Общий логгер процесса, пишет в stdout/stderr
func NewLogger() *LogPack {

	once.Do(func() {
		singleLogger = New("", os.Stdout, os.Stderr)
	})

	return singleLogger
}

// New Логгер компонента с префиксом prefix.
// Info пишет в out, Err и Fatal - в errOut.
func New(prefix string, out, errOut io.Writer) *LogPack {
	return &LogPack{
		Info:  log.New(out, "INFO\t"+prefix, log.LstdFlags|log.Lmsgprefix),
		Err:   log.New(errOut, "ERROR\t"+prefix, log.Lshortfile|log.LstdFlags|log.Lmsgprefix),
		Fatal: log.New(errOut, "FATAL\t"+prefix, log.Lshortfile|log.LstdFlags|log.Lmsgprefix),
	}
}

// Discard Логгер, который ничего не пишет
func Discard() *LogPack {
	return New("", io.Discard, io.Discard)
}
