package config

type StorageConfig interface {
	GetStorageDriver() string
	GetStoragePath() string
	GetStoragePrefix() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

var _ StorageConfig = EnvVars{}

// GetStorageDriver returns one of memory, bolt, sqlite or redis.
func (e EnvVars) GetStorageDriver() string {
	if e.StorageDriver == "" {
		return "bolt"
	}
	return e.StorageDriver
}

func (e EnvVars) GetStoragePath() string {
	return e.StoragePath
}

func (e EnvVars) GetStoragePrefix() string {
	return e.StoragePrefix
}

func (e EnvVars) GetRedisAddr() string {
	return e.RedisAddr
}

func (e EnvVars) GetRedisPassword() string {
	return e.RedisPassword
}

func (e EnvVars) GetRedisDB() int {
	return e.RedisDB
}
