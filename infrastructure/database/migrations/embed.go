package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Version é a última migração conhecida pela aplicação
const Version uint = 1
