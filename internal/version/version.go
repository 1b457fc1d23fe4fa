package version

// Version is the current version of the VoiceApp CLI.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/aloche971/VoiceApp/internal/version.Version=v1.0.0'"
var Version = "dev"
