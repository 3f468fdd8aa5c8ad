// Package pages contains the templ components for each GUI page.
package pages

import vm "github.com/ericfisherdev/mydiary/internal/adapter/driving/web/viewmodel"

func loginAction(m vm.LoginViewModel) string {
	if m.SetPassword {
		return "/app/setup"
	}
	return "/app/login"
}

func entryPath(date string) string {
	return "/app/entries/" + date
}

func exportPath(date, format string) string {
	return entryPath(date) + "/export?format=" + format
}

func cellClass(d vm.DayCellViewModel) string {
	class := "in"
	if !d.InMonth {
		class = "out"
	}
	if d.HasEntry {
		class += " entry"
	}
	if d.IsToday {
		class += " today"
	}
	return class
}

// cellStyle tints days that have an entry with that entry's background.
func cellStyle(d vm.DayCellViewModel) string {
	if !d.HasEntry {
		return ""
	}
	return "background:" + d.Tint
}
