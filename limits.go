package usox

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// RaiseFileDescriptorLimit raises RLIMIT_NOFILE to cur/max, same rlimit
// dance the teacher's monitor.go GetOSConfig ran at startup (there with
// hardcoded 4096/100000); a loop that fans out one fd per socket across
// many Contexts needs this to avoid accept4 failing under load.
func RaiseFileDescriptorLimit(cur, max uint64) error {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		log.Error().Msgf("getrlimit RLIMIT_NOFILE: %+v", err)
		return err
	}
	if rlimit.Cur >= cur {
		return nil
	}
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &unix.Rlimit{Cur: cur, Max: max})
}
