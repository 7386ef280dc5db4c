package usox

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

func closeFd(fd int) {
	if err := unix.Close(fd); err != nil {
		log.Debug().Msgf("close fd=%d: %+v", fd, err)
	}
}
