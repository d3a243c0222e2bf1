package httpserver

import "time"

// ShutdownTimeout bounds graceful shutdown. In-flight media uploads past
// this point are abandoned; clients retry them.
var ShutdownTimeout = 10 * time.Second
