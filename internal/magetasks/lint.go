package magetasks

import (
	"errors"

	"github.com/magefile/mage/sh"
)

var golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign"

// LintAll runs every linter and joins their failures.
func LintAll() error {
	PrintH2Header("Lint")
	err := errors.Join(LintFormat(), LintVet(), LintStaticcheck(), LintGolangci())
	if err != nil {
		PrintError("Lint failed")
		return err
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintFormat fails when gofmt would change any file.
func LintFormat() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		PrintWarning("gofmt needed:\n" + out)
		return errors.New("files are not gofmt-ed")
	}
	return nil
}

// LintVet runs go vet.
func LintVet() error {
	return sh.RunV("go", "vet", "./...")
}

// LintStaticcheck runs staticcheck if installed.
func LintStaticcheck() error {
	return optional("honnef.co/go/tools/cmd/staticcheck@latest", "staticcheck", "./...")
}

// LintGolangci runs golangci-lint if installed.
func LintGolangci() error {
	return optional("github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"golangci-lint", "run", golangciDisabled, "--timeout=5m", "./...")
}

// LintFix runs golangci-lint with auto-fixes.
func LintFix() error {
	return optional("github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"golangci-lint", "run", "--fix", golangciDisabled, "--timeout=5m", "./...")
}
