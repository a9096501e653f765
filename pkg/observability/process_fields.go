package observability

import (
	"os"
	"os/user"

	"github.com/facebookincubator/go-belt/pkg/field"
)

// FieldPID is the field value type for the process ID
type FieldPID int

// FieldUID is the field value type for the user ID
type FieldUID int

// FieldUsername is the field value type for the username
type FieldUsername string

// FieldHostname is the field value type for the hostname
type FieldHostname string

// FieldLabSite is the field value type for the test lab site name
type FieldLabSite string

// processFields describes the running process; every log line, span and
// error report carries these.
func processFields() field.Fields {
	fields := field.Fields{
		{Key: "pid", Value: FieldPID(os.Getpid())},
		{Key: "uid", Value: FieldUID(os.Getuid())},
	}
	if curUser, _ := user.Current(); curUser != nil {
		fields = append(fields, field.Field{Key: "username", Value: FieldUsername(curUser.Name)})
	}
	if hostname, err := os.Hostname(); err == nil {
		fields = append(fields, field.Field{Key: "hostname", Value: FieldHostname(hostname)})
	}
	// several labs report into one log pipeline, the site tells them apart
	if site := os.Getenv("FWDS_LAB_SITE"); site != "" {
		fields = append(fields, field.Field{Key: "labSite", Value: FieldLabSite(site)})
	}
	return fields
}
