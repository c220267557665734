package version

// Commit：构建时通过 -ldflags "-X zone-api/internal/version.Commit=..." 注入
var Commit = "dev"
