package loader

// 各资源族在 init 中注册描述符。
import (
	_ "github.com/casskit/casskit/internal/resource/ancestry"
	_ "github.com/casskit/casskit/internal/resource/biogrid"
	_ "github.com/casskit/casskit/internal/resource/centromere"
	_ "github.com/casskit/casskit/internal/resource/corum"
	_ "github.com/casskit/casskit/internal/resource/cosmic"
	_ "github.com/casskit/casskit/internal/resource/ensembl"
	_ "github.com/casskit/casskit/internal/resource/pancan"
	_ "github.com/casskit/casskit/internal/resource/subtypes"
	_ "github.com/casskit/casskit/internal/resource/trrust"
	_ "github.com/casskit/casskit/internal/resource/xena"
)
