// Package catalog models the list of known Moodle plugins and themes that
// enumeration probes for.
package catalog

import (
	"strings"
)

// PluginDirectoryURL is the prefix of every plugin page on the plugins directory.
const PluginDirectoryURL = "https://moodle.org/plugins/"

// installPaths maps a plugin type to the directory it is installed under.
var installPaths = map[string]string{
	"assignsubmission":   "/mod/assign/submission/",
	"calendartype":       "/calendar/type/",
	"gradereport":        "/grade/report/",
	"assignfeedback":     "/assign/feedback/",
	"booktool":           "/mod/book/tool/",
	"workshopallocation": "/mod/workshop/allocation/",
	"portfolio":          "/portfolio/",
	"message":            "/message/output/",
	"qtype":              "/question/type/",
	"availability":       "/availability/condition/",
	"contenttype":        "/contentbank/contenttype/",
	"media":              "/media/player/",
	"tinymce":            "/lib/editor/tinymce/plugins/",
	"quiz":               "/mod/quiz/report/",
	"profilefield":       "/user/profile/field/",
	"theme":              "/theme/",
	"ltisource":          "/mod/lti/source/",
	"editor":             "/lib/editor/",
	"quizaccess":         "/mod/quiz/accessrule/",
	"local":              "/local/",
	"cachestore":         "/cache/stores/",
	"repository":         "/repository/",
	"format":             "/course/format/",
	"qbehaviour":         "/question/behaviour/",
	"tool":               "/admin/tool/",
	"workshopeval":       "/mod/workshop/eval/",
	"antivirus":          "/lib/antivirus/",
	"dataformat":         "/dataformat/",
	"auth":               "/auth/",
	"report":             "/report/",
	"enrol":              "/enrol/",
	"mod":                "/mod/",
	"search":             "/search/engine/",
	"plagiarism":         "/plagiarism/",
	"webservice":         "/webservice/",
	"gradingform":        "/grade/grading/form/",
	"scormreport":        "/mod/scorm/report/",
	"gradeexport":        "/grade/export/",
	"fileconverter":      "/files/converter/",
	"filter":             "/filter/",
	"qformat":            "/question/format/",
	"datafield":          "/mod/data/field/",
	"logstore":           "/admin/tool/log/store/",
	"atto":               "/lib/editor/atto/plugins/",
	"paygw":              "/payment/gateway/",
	"customfield":        "/customfield/field/",
	"block":              "/blocks/",
}

// ProbeFiles are appended to a plugin path when looking for an installation.
var ProbeFiles = []string{"", "version.php", "README.md", "LICENSE.txt"}

// Plugin is one catalog entry.
type Plugin struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Path        string `json:"path"`
}

// InstallPath returns the directory plugins of the given type live under.
func InstallPath(pluginType string) (string, bool) {
	p, ok := installPaths[pluginType]
	return p, ok
}

// NewPlugin builds a catalog entry and derives its install path from the type and the
// component name found in its directory URL. ok is false for types with no known path.
func NewPlugin(id int64, pluginType, name, description, url string) (Plugin, bool) {
	base, ok := InstallPath(pluginType)
	if !ok {
		return Plugin{}, false
	}
	component := strings.TrimPrefix(url, PluginDirectoryURL+pluginType+"_")
	component = strings.Trim(component, "/")

	return Plugin{
		ID:          id,
		Type:        pluginType,
		Name:        name,
		Description: description,
		URL:         url,
		Path:        base + component + "/",
	}, true
}

// IsTheme reports whether the entry is a theme rather than a plugin.
func (p Plugin) IsTheme() bool {
	return p.Type == "theme"
}

// Kind returns "theme" or "plugin" for display.
func (p Plugin) Kind() string {
	if p.IsTheme() {
		return "theme"
	}
	return "plugin"
}

// ProbeFunc observes the enumeration of one catalog entry. foundAt is the URL that
// proved the installation and is empty when nothing was found.
type ProbeFunc func(plugin Plugin, found bool, foundAt string, seconds float64)
