package dab

import "github.com/dabcore/dab-bridge/dabjson"

// Each overridable operation is expressed as a small, single-method
// interface. NewBaseAdapter probes the concrete adapter value for each
// one with a type assertion and registers the real handler only when the
// adapter implements it, leaving the 501 stub otherwise. This is the same
// "optional interface" idiom the standard library uses for things like
// http.Hijacker or io.ReaderFrom.

type AppLister interface {
	AppList() (*dabjson.Value, error)
}

type AppLauncher interface {
	AppLaunch(appID string, parameters *dabjson.Value) (*dabjson.Value, error)
}

type AppLauncherWithContent interface {
	AppLaunchWithContent(appID, contentID string, parameters *dabjson.Value) (*dabjson.Value, error)
}

type AppStateGetter interface {
	AppGetState(appID string) (*dabjson.Value, error)
}

type AppExiter interface {
	AppExit(appID string, background bool) (*dabjson.Value, error)
}

type DeviceInfoProvider interface {
	DeviceInfo() (*dabjson.Value, error)
}

type SystemRestarter interface {
	SystemRestart() (*dabjson.Value, error)
}

type SystemSettingsLister interface {
	SystemSettingsList() (*dabjson.Value, error)
}

type SystemSettingsGetter interface {
	SystemSettingsGet() (*dabjson.Value, error)
}

type SystemSettingsSetter interface {
	SystemSettingsSet(envelope *dabjson.Value) (*dabjson.Value, error)
}

type InputKeyLister interface {
	InputKeyList() (*dabjson.Value, error)
}

type InputKeyPresser interface {
	InputKeyPress(keyCode string) (*dabjson.Value, error)
}

type InputKeyLongPresser interface {
	InputKeyLongPress(keyCode string, durationMs int64) (*dabjson.Value, error)
}

type OutputImager interface {
	OutputImage() (*dabjson.Value, error)
}

// DeviceTelemetryProducer is the per-device telemetry producer. Overriding
// it is what flips the implementedFlag for both device-telemetry/start and
// device-telemetry/stop; those two topics dispatch to internal start/stop
// logic, not to this method directly.
type DeviceTelemetryProducer interface {
	DeviceTelemetry() (*dabjson.Value, error)
}

// AppTelemetryProducer is the per-application telemetry producer; see
// DeviceTelemetryProducer.
type AppTelemetryProducer interface {
	AppTelemetry(appID string) (*dabjson.Value, error)
}

type HealthChecker interface {
	HealthCheckGet() (*dabjson.Value, error)
}

type VoiceLister interface {
	VoiceList() (*dabjson.Value, error)
}

type VoiceSetter interface {
	VoiceSet(voiceSystem *dabjson.Value) (*dabjson.Value, error)
}

type VoiceAudioSender interface {
	VoiceSendAudio(fileLocation, voiceSystem string) (*dabjson.Value, error)
}

type VoiceTextSender interface {
	VoiceSendText(requestText, voiceSystem string) (*dabjson.Value, error)
}

// DiscoveryOverrider lets an adapter customize its own dab/discovery
// response; the bridge falls back to the default {ip, deviceId} shape when
// the adapter doesn't implement this.
type DiscoveryOverrider interface {
	Discovery() (*dabjson.Value, error)
}
