package app

import (
	"github.com/danieljelinko/alma-tv/internal/ports"
)

var ErrNotFound = ports.ErrNotFound
