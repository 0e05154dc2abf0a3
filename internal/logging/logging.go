package logging

import (
	"log"
	"os"
)

func New() *log.Logger {
	return log.New(os.Stdout, "pingdeck ", log.LstdFlags|log.LUTC)
}
