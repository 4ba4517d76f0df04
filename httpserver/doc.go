/*
Package httpserver runs an HTTP server as a system service, with graceful
shutdown and connection gauges taken from the listener.
*/
package httpserver
