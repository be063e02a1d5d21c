// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the pipeline that turns a service template
// into a deployment plan, decoupled from any specific entrypoint like a CLI.
package app
