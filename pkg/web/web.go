package web

import (
	"embed"

	"github.com/getzep/ducks/internal"
)

var log = internal.GetLogger()

//go:embed static/*
var StaticFS embed.FS

//go:embed templates/*
var TemplatesFS embed.FS
