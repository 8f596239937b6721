// Package siblings applies the outtake toggle to every file sharing the
// acted-on file's base name, so a JPEG and its RAW companion always carry the
// same outtake state.
package siblings
