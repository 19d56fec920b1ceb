// Package common contains the logger factory and the configuration structs
// shared by the fKV command line tools.
package common
