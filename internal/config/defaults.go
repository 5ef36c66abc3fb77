package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.SnapshotPath == "" {
		cfg.Store.SnapshotPath = "/usr/local/var/kimawashi/data/features.snap"
	}
	if cfg.Embedding.Type == "" {
		cfg.Embedding.Type = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kimawashi/data/models/inception_v3.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 2048
	}
	if cfg.Embedding.ImageSize == 0 {
		cfg.Embedding.ImageSize = 299
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.Recommend.DefaultTopK == 0 {
		cfg.Recommend.DefaultTopK = 5
	}
	if cfg.Recommend.MaxTopK == 0 {
		cfg.Recommend.MaxTopK = 50
	}
	if cfg.Recommend.DefaultCategories == nil {
		cfg.Recommend.DefaultCategories = []string{"pants", "dress"}
	}
}
