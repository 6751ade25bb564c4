// Package process runs the external audio tools jackbridge depends on.
//
// Every command goes through a Runner so callers never touch os/exec
// directly. Two call shapes exist:
//
// CombinedOutput runs a short-lived command to completion:
//   - stdout and stderr are merged, matching what the ALSA and JACK tools
//     print for a human operator
//   - the context deadline is the only cancellation mechanism; on expiry the
//     whole process group is killed and whatever output was captured so far
//     is still returned
//
// Start launches a command and returns as soon as the OS accepted it:
//   - the child is reaped in the background and its output is logged
//   - exit status is never reported back to the caller
//
// Tests use Fake, a scripted Runner keyed by the full command line:
//
//	fake := process.NewFake()
//	fake.On("aplay -l", process.Reply{Output: fixture})
//	devices, err := alsa.NewDiscoverer(fake, alsa.Options{}).ListDevices(ctx)
package process
