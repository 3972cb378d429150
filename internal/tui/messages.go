package tui

import (
	"github.com/matheuskafuri/kyou/internal/dashboard"
)

type pageLoadedMsg struct {
	page *dashboard.Page
}

type openErrMsg struct {
	err error
}
