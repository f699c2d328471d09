package installart

// Version is the release of the library and the installart command.
// Release builds stamp it with
//
//	-ldflags "-X github.com/VantageDataChat/installart.Version=1.2.3"
var Version = "1.0.0"
