// Package driver installs and removes the optional DeskPi Lite case driver.
package driver
