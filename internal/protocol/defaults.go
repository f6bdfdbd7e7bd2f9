package protocol

// Well-known paths and environment overrides shared by the daemon and any
// reader process.
const (
	// DefaultShmemPath is the shared-memory file backing the terminal grid.
	DefaultShmemPath = "/dev/shm/scarab_shm_v1"

	// DefaultSocketPath is the control-channel unix socket.
	DefaultSocketPath = "/tmp/scarabd.sock"

	EnvShmemPath  = "SCARAB_SHMEM_PATH"
	EnvSocketPath = "SCARAB_SOCKET_PATH"
	EnvCols       = "SCARAB_COLS"
	EnvRows       = "SCARAB_ROWS"

	// EnvForcePtyFail forces PTY spawning to fail when set to "1". Used to
	// exercise the error-mode publication path.
	EnvForcePtyFail = "SCARAB_FORCE_PTY_FAIL"
)

// MaxMessageSize bounds a single control-channel message line.
const MaxMessageSize = 8192
