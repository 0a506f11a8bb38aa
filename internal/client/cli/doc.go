// Package cli wires the tjuecard binaries together.
//
// Two entry points share one App:
//   - App.Run is the unattended query started by the OS scheduler. It loads
//     the user config, restores or renews the portal session, queries the
//     balance and mails the result. Its returned error decides the exit
//     status; nothing in here calls os.Exit.
//   - App.Setup is the interactive wizard that logs in, walks the room
//     hierarchy, configures mail, saves everything with secrets encrypted
//     and optionally registers the daily run.
package cli
