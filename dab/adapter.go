package dab

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dabcore/dab-bridge/dabjson"
	"github.com/dabcore/dab-bridge/telemetry"
)

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

const protocolVersion = "2.0"

type regEntry struct {
	descriptor  *Descriptor
	implemented bool
}

// BaseAdapter is the Go counterpart to dabClient<T>: a registry of
// topic → (descriptor, implementedFlag) for one device, the built-in
// meta-operations (operations/list, version, telemetry start/stop), and the
// telemetry scheduler the device's producer methods feed into. A concrete
// device adapter embeds *BaseAdapter and implements whichever optional
// interfaces from optional.go it wants to support; NewBaseAdapter probes
// for them at construction time in place of the source's CRTP override
// detection.
type BaseAdapter struct {
	deviceID  string
	ipAddress string
	impl      any

	entries   map[string]*regEntry
	discovery *Descriptor

	scheduler *telemetry.Scheduler
	publish   telemetry.PublishFunc
	logger    *slog.Logger
}

// NewBaseAdapter constructs the registry for deviceID, probing impl for
// every optional interface in optional.go. publish is the callback the
// adapter (and its telemetry scheduler) send outbound messages through;
// the bridge supplies it once, before any publish can occur.
func NewBaseAdapter(deviceID, ipAddress string, impl any, publish telemetry.PublishFunc, logger *slog.Logger) *BaseAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &BaseAdapter{
		deviceID:  deviceID,
		ipAddress: ipAddress,
		impl:      impl,
		entries:   map[string]*regEntry{},
		publish:   publish,
		logger:    logger,
	}
	a.scheduler = telemetry.NewScheduler(publish, logger.With("deviceId", deviceID))
	a.registerAll()
	return a
}

func (a *BaseAdapter) topic(suffix string) string {
	return "dab/" + a.deviceID + "/" + suffix
}

func (a *BaseAdapter) register(suffix string, implemented bool, d *Descriptor) {
	a.entries[a.topic(suffix)] = &regEntry{descriptor: d, implemented: implemented}
}

// registerOptional registers suffix unconditionally, using realFn and
// implemented=true when probe succeeds, and a 501 stub with
// implemented=false otherwise.
func (a *BaseAdapter) registerOptional(suffix string, fixed, optional []string, probe bool, realFn Handler) {
	if probe {
		a.register(suffix, true, &Descriptor{FixedParams: fixed, OptionalParams: optional, Fn: realFn})
		return
	}
	a.register(suffix, false, &Descriptor{FixedParams: fixed, OptionalParams: optional, Fn: stubUnsupported})
}

func stubUnsupported(_ []*dabjson.Value) (*dabjson.Value, error) {
	return nil, Unsupported()
}

func (a *BaseAdapter) registerAll() {
	// operations/list and version are unconditionally reported regardless
	// of override, per the source's explicit methName special-case.
	a.register("operations/list", true, &Descriptor{Fn: a.opList})
	a.register("version", true, &Descriptor{Fn: a.version})

	if lister, ok := a.impl.(AppLister); ok {
		a.registerOptional("applications/list", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return lister.AppList()
		})
	} else {
		a.registerOptional("applications/list", nil, nil, false, nil)
	}

	if launcher, ok := a.impl.(AppLauncher); ok {
		a.registerOptional("applications/launch", []string{"appId"}, []string{"parameters"}, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			appID, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			return launcher.AppLaunch(appID, args[1])
		})
	} else {
		a.registerOptional("applications/launch", []string{"appId"}, []string{"parameters"}, false, nil)
	}

	if launcher, ok := a.impl.(AppLauncherWithContent); ok {
		a.registerOptional("applications/launch-with-content", []string{"appId", "contentId"}, []string{"parameters"}, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			appID, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			contentID, err := args[1].AsString()
			if err != nil {
				return nil, err
			}
			return launcher.AppLaunchWithContent(appID, contentID, args[2])
		})
	} else {
		a.registerOptional("applications/launch-with-content", []string{"appId", "contentId"}, []string{"parameters"}, false, nil)
	}

	if getter, ok := a.impl.(AppStateGetter); ok {
		a.registerOptional("applications/get-state", []string{"appId"}, nil, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			appID, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			return getter.AppGetState(appID)
		})
	} else {
		a.registerOptional("applications/get-state", []string{"appId"}, nil, false, nil)
	}

	if exiter, ok := a.impl.(AppExiter); ok {
		a.registerOptional("applications/exit", []string{"appId"}, []string{"background"}, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			appID, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			background, err := args[1].AsBool()
			if err != nil && !args[1].IsNull() {
				return nil, err
			}
			return exiter.AppExit(appID, background)
		})
	} else {
		a.registerOptional("applications/exit", []string{"appId"}, []string{"background"}, false, nil)
	}

	if provider, ok := a.impl.(DeviceInfoProvider); ok {
		a.registerOptional("device/info", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return provider.DeviceInfo()
		})
	} else {
		a.registerOptional("device/info", nil, nil, false, nil)
	}

	if restarter, ok := a.impl.(SystemRestarter); ok {
		a.registerOptional("system/restart", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return restarter.SystemRestart()
		})
	} else {
		a.registerOptional("system/restart", nil, nil, false, nil)
	}

	if lister, ok := a.impl.(SystemSettingsLister); ok {
		a.registerOptional("system/settings/list", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return lister.SystemSettingsList()
		})
	} else {
		a.registerOptional("system/settings/list", nil, nil, false, nil)
	}

	if getter, ok := a.impl.(SystemSettingsGetter); ok {
		a.registerOptional("system/settings/get", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return getter.SystemSettingsGet()
		})
	} else {
		a.registerOptional("system/settings/get", nil, nil, false, nil)
	}

	if setter, ok := a.impl.(SystemSettingsSetter); ok {
		a.registerOptional("system/settings/set", []string{"*"}, nil, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			return setter.SystemSettingsSet(args[0])
		})
	} else {
		a.registerOptional("system/settings/set", []string{"*"}, nil, false, nil)
	}

	if lister, ok := a.impl.(InputKeyLister); ok {
		a.registerOptional("input/key/list", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return lister.InputKeyList()
		})
	} else {
		a.registerOptional("input/key/list", nil, nil, false, nil)
	}

	if presser, ok := a.impl.(InputKeyPresser); ok {
		a.registerOptional("input/key-press", []string{"keyCode"}, nil, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			keyCode, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			return presser.InputKeyPress(keyCode)
		})
	} else {
		a.registerOptional("input/key-press", []string{"keyCode"}, nil, false, nil)
	}

	if presser, ok := a.impl.(InputKeyLongPresser); ok {
		a.registerOptional("input/long-key-press", []string{"keyCode", "durationMs"}, nil, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			keyCode, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			durationMs, err := args[1].AsInt()
			if err != nil {
				return nil, err
			}
			return presser.InputKeyLongPress(keyCode, durationMs)
		})
	} else {
		a.registerOptional("input/long-key-press", []string{"keyCode", "durationMs"}, nil, false, nil)
	}

	if imager, ok := a.impl.(OutputImager); ok {
		a.registerOptional("output/image", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return imager.OutputImage()
		})
	} else {
		a.registerOptional("output/image", nil, nil, false, nil)
	}

	deviceProducer, hasDeviceTelemetry := a.impl.(DeviceTelemetryProducer)
	a.registerOptional("device-telemetry/start", []string{"duration"}, nil, hasDeviceTelemetry, func(args []*dabjson.Value) (*dabjson.Value, error) {
		return a.deviceTelemetryStart(args, deviceProducer)
	})
	a.registerOptional("device-telemetry/stop", nil, nil, hasDeviceTelemetry, func(_ []*dabjson.Value) (*dabjson.Value, error) {
		a.scheduler.Delete("")
		return dabjson.NewObject(), nil
	})

	appProducer, hasAppTelemetry := a.impl.(AppTelemetryProducer)
	a.registerOptional("app-telemetry/start", []string{"appId", "duration"}, nil, hasAppTelemetry, func(args []*dabjson.Value) (*dabjson.Value, error) {
		return a.appTelemetryStart(args, appProducer)
	})
	a.registerOptional("app-telemetry/stop", []string{"appId"}, nil, hasAppTelemetry, func(args []*dabjson.Value) (*dabjson.Value, error) {
		appID, err := args[0].AsString()
		if err != nil {
			return nil, err
		}
		a.scheduler.Delete(appID)
		return dabjson.NewObject(), nil
	})

	if checker, ok := a.impl.(HealthChecker); ok {
		a.registerOptional("health-check/get", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return checker.HealthCheckGet()
		})
	} else {
		a.registerOptional("health-check/get", nil, nil, false, nil)
	}

	if lister, ok := a.impl.(VoiceLister); ok {
		a.registerOptional("voice/list", nil, nil, true, func(_ []*dabjson.Value) (*dabjson.Value, error) {
			return lister.VoiceList()
		})
	} else {
		a.registerOptional("voice/list", nil, nil, false, nil)
	}

	if setter, ok := a.impl.(VoiceSetter); ok {
		a.registerOptional("voice/set", []string{"voiceSystem"}, nil, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			return setter.VoiceSet(args[0])
		})
	} else {
		a.registerOptional("voice/set", []string{"voiceSystem"}, nil, false, nil)
	}

	if sender, ok := a.impl.(VoiceAudioSender); ok {
		a.registerOptional("voice/send-audio", []string{"fileLocation"}, []string{"voiceSystem"}, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			fileLocation, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			voiceSystem, _ := args[1].AsString()
			return sender.VoiceSendAudio(fileLocation, voiceSystem)
		})
	} else {
		a.registerOptional("voice/send-audio", []string{"fileLocation"}, []string{"voiceSystem"}, false, nil)
	}

	if sender, ok := a.impl.(VoiceTextSender); ok {
		a.registerOptional("voice/send-text", []string{"requestText"}, []string{"voiceSystem"}, true, func(args []*dabjson.Value) (*dabjson.Value, error) {
			requestText, err := args[0].AsString()
			if err != nil {
				return nil, err
			}
			voiceSystem, _ := args[1].AsString()
			return sender.VoiceSendText(requestText, voiceSystem)
		})
	} else {
		a.registerOptional("voice/send-text", []string{"requestText"}, []string{"voiceSystem"}, false, nil)
	}

	// dab/discovery is owned by the bridge, but every adapter still carries
	// its own discovery descriptor. It is kept outside the topic registry,
	// so it never appears in Topics() or opList and Dispatch does not route
	// to it; the bridge invokes it through Discovery() instead.
	a.discovery = &Descriptor{Fn: func(_ []*dabjson.Value) (*dabjson.Value, error) {
		if overrider, ok := a.impl.(DiscoveryOverrider); ok {
			return overrider.Discovery()
		}
		out := dabjson.NewObject()
		out.Set("ip", dabjson.NewString(a.ipAddress))
		out.Set("deviceId", dabjson.NewString(a.deviceID))
		return out, nil
	}}
}

func (a *BaseAdapter) deviceTelemetryStart(args []*dabjson.Value, producer DeviceTelemetryProducer) (*dabjson.Value, error) {
	if producer == nil {
		return nil, NewError(400, "device telemetry not supported")
	}
	durationMs, err := args[0].AsInt()
	if err != nil {
		return nil, err
	}
	topic := a.topic("device-telemetry/metrics")
	a.scheduler.Add("", topic, msDuration(durationMs), func() (*dabjson.Value, error) {
		return producer.DeviceTelemetry()
	})
	out := dabjson.NewObject()
	out.Set("duration", dabjson.NewInt(durationMs))
	return out, nil
}

func (a *BaseAdapter) appTelemetryStart(args []*dabjson.Value, producer AppTelemetryProducer) (*dabjson.Value, error) {
	if producer == nil {
		return nil, NewError(400, "app telemetry not supported")
	}
	appID, err := args[0].AsString()
	if err != nil {
		return nil, err
	}
	durationMs, err := args[1].AsInt()
	if err != nil {
		return nil, err
	}
	topic := a.topic(fmt.Sprintf("app-telemetry/metrics/%s", appID))
	a.scheduler.Add(appID, topic, msDuration(durationMs), func() (*dabjson.Value, error) {
		return producer.AppTelemetry(appID)
	})
	out := dabjson.NewObject()
	out.Set("duration", dabjson.NewInt(durationMs))
	return out, nil
}

// opList returns every operation this adapter reports as implemented, with
// the leading "dab/<deviceId>/" prefix stripped.
func (a *BaseAdapter) opList(_ []*dabjson.Value) (*dabjson.Value, error) {
	prefix := "dab/" + a.deviceID + "/"
	names := make([]string, 0, len(a.entries))
	for topic, e := range a.entries {
		if e.implemented {
			names = append(names, strings.TrimPrefix(topic, prefix))
		}
	}
	sort.Strings(names)
	ops := dabjson.NewArray()
	for _, name := range names {
		ops.Append(dabjson.NewString(name))
	}
	out := dabjson.NewObject()
	out.Set("operations", ops)
	return out, nil
}

func (a *BaseAdapter) version(_ []*dabjson.Value) (*dabjson.Value, error) {
	versions := dabjson.NewArray()
	versions.Append(dabjson.NewString(protocolVersion))
	out := dabjson.NewObject()
	out.Set("versions", versions)
	return out, nil
}

// Topics returns the full subscription list for this adapter: every
// registered topic whose implementedFlag is true, dab/discovery excluded
// (the bridge owns that subscription).
func (a *BaseAdapter) Topics() []string {
	topics := make([]string, 0, len(a.entries))
	for topic, e := range a.entries {
		if e.implemented {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// DeviceID returns the device identifier this adapter was constructed with.
func (a *BaseAdapter) DeviceID() string { return a.deviceID }

// Discovery invokes this adapter's dab/discovery handler directly, used by
// the bridge's fan-out rather than going through Dispatch since the
// discovery topic carries no deviceId segment to route on.
func (a *BaseAdapter) Discovery() (*dabjson.Value, error) {
	return a.discovery.Fn(nil)
}

// Dispatch routes one envelope to its registered handler and shapes the
// response, mirroring dabClient::dispatch's catch-all error mapping: typed
// *Error values carry their status/message through, anything else becomes
// a 400 "unable to parse request".
func (a *BaseAdapter) Dispatch(envelope *dabjson.Value) *dabjson.Value {
	topicVal, ok := envelope.Lookup("topic")
	if !ok {
		return ErrorResponse(NewError(400, "unable to parse request"))
	}
	topic, err := topicVal.AsString()
	if err != nil {
		return ErrorResponse(NewError(400, "unable to parse request"))
	}

	e, ok := a.entries[topic]
	if !ok {
		// An unrecognized topic is not itself a parse failure: dabClient
		// responds with an empty 200 rather than an error here.
		out := dabjson.NewObject()
		out.Set("status", dabjson.NewInt(200))
		return out
	}

	rsp, err := e.descriptor.Invoke(envelope)
	if err != nil {
		return ErrorResponse(err)
	}
	if rsp == nil {
		rsp = dabjson.NewObject()
	}
	if !rsp.Has("status") {
		rsp.Set("status", dabjson.NewInt(200))
	}
	return rsp
}

// ErrorResponse shapes err into a {"status", "error"} response, the same
// catch-all mapping dabClient::dispatch applies: a typed *Error carries its
// status/message through, anything else collapses to 400 "unable to parse
// request". Exported so package bridge can apply the identical mapping to
// its own topic-parsing failures.
func ErrorResponse(err error) *dabjson.Value {
	out := dabjson.NewObject()
	if derr, ok := err.(*Error); ok {
		out.Set("status", dabjson.NewInt(derr.Status))
		out.Set("error", dabjson.NewString(derr.Message))
		return out
	}
	out.Set("status", dabjson.NewInt(400))
	out.Set("error", dabjson.NewString("unable to parse request"))
	return out
}

// Shutdown joins the telemetry worker before the adapter is torn down.
func (a *BaseAdapter) Shutdown() {
	a.scheduler.Shutdown()
}
