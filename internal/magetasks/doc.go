// Package magetasks implements the mage targets for reportwatch. The magefile
// at the repository root only declares targets and delegates here, so the
// tasks can be tested like any other package.
package magetasks
