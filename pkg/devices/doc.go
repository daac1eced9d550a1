// Package devices enumerates the targets browser discovery runs
// against. The default Enumerator derives the device list from the
// finder options: the local host, Android devices by serial, and the
// remote ChromeOS host when one is configured.
package devices
