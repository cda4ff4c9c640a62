package service

const (
	BackendFile    = "file"
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
)

const (
	DEFAULT_BACKEND = BackendFile
	DEFAULT_CHAIN   = "main"
	DEFAULT_DATADIR = "."
	// Number of block timestamps the block clock averages over.
	DEFAULT_CLOCK_WINDOW = 11
)

const (
	boltFileName = "chains.db"
	levelDirName = "chains.ldb"
)
