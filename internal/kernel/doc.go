// Package kernel implements ppp.Multiplexor against the Linux "/dev/ppp"
// character device. Every session channel and unit descriptor the core
// drives is obtained and wired together here via the PPPIOC* ioctl
// family; non-Linux builds get a stub that reports ppp.ErrUnsupported
// on every call so the rest of the tree still compiles.
package kernel
