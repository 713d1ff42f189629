package report

import (
	"fmt"
	"strconv"
	"strings"
)

// exceptionFingerprint formats the deduplication key for an exception:
// "<module>.<class>: <str(exception)>\n<trace-or-None>", or "str: <value>"
// for an exception built from a bare string.
func exceptionFingerprint(err error, trace string) string {
	if trace == "" {
		return fmt.Sprintf("%s\nNone", exceptionClassAndMessage(err))
	}
	return fmt.Sprintf("%s\n%s", exceptionClassAndMessage(err), trace)
}

// exceptionClassAndMessage formats "<module>.<class>: <message>". Go has no
// module/class pair for an error, so the error's dynamic type (via %T)
// stands in for both; a plain *errors.errorString (errors.New, or
// fmt.Errorf without %w) or a *fmt.wrapError (fmt.Errorf with %w) is
// rendered as "str: <value>" instead, since it carries no meaningful type
// name of its own. The full message is kept, all lines included.
func exceptionClassAndMessage(err error) string {
	typeName := fmt.Sprintf("%T", err)
	if typeName == "*errors.errorString" || typeName == "*fmt.wrapError" {
		return "str: " + err.Error()
	}
	return fmt.Sprintf("%s: %s", typeName, err.Error())
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}

// exceptionHeaderMessage formats the "<module>.<class>: <first line>" text
// used in both MergeExceptions' and PrintExceptions' one-line headers.
func exceptionHeaderMessage(err error) string {
	return firstLine(exceptionClassAndMessage(err))
}

// exceptionDescription formats the detailed block printed below an
// exception header: the exception's type, then a single synthesized
// argument (the error's message), indented so wrapped lines align under
// the argument number.
func exceptionDescription(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exception class: %s\n", fmt.Sprintf("%T", err))
	fmt.Fprintf(&b, "Args:\n")
	arg := err.Error()
	pad := strings.Repeat(" ", len(strconv.Itoa(0))+3)
	arg = strings.ReplaceAll(arg, "\n", "\n\t"+pad)
	fmt.Fprintf(&b, "\t0 : %s\n", arg)
	return b.String()
}
