package report

import "strings"

// Keycode is a USB HID Keyboard/Keypad page usage.
type Keycode uint8

// Keyboard modifier bits (report byte 0).
const (
	ModLeftCtrl   = 1 << 0
	ModLeftShift  = 1 << 1
	ModLeftAlt    = 1 << 2
	ModLeftGUI    = 1 << 3
	ModRightCtrl  = 1 << 4
	ModRightShift = 1 << 5
	ModRightAlt   = 1 << 6
	ModRightGUI   = 1 << 7
)

// Keyboard keycodes (USB HID Usage Tables, page 0x07).
const (
	KeyNone        Keycode = 0x00
	KeyA           Keycode = 0x04
	KeyB           Keycode = 0x05
	KeyC           Keycode = 0x06
	KeyD           Keycode = 0x07
	KeyE           Keycode = 0x08
	KeyF           Keycode = 0x09
	KeyG           Keycode = 0x0A
	KeyH           Keycode = 0x0B
	KeyI           Keycode = 0x0C
	KeyJ           Keycode = 0x0D
	KeyK           Keycode = 0x0E
	KeyL           Keycode = 0x0F
	KeyM           Keycode = 0x10
	KeyN           Keycode = 0x11
	KeyO           Keycode = 0x12
	KeyP           Keycode = 0x13
	KeyQ           Keycode = 0x14
	KeyR           Keycode = 0x15
	KeyS           Keycode = 0x16
	KeyT           Keycode = 0x17
	KeyU           Keycode = 0x18
	KeyV           Keycode = 0x19
	KeyW           Keycode = 0x1A
	KeyX           Keycode = 0x1B
	KeyY           Keycode = 0x1C
	KeyZ           Keycode = 0x1D
	Key1           Keycode = 0x1E
	Key2           Keycode = 0x1F
	Key3           Keycode = 0x20
	Key4           Keycode = 0x21
	Key5           Keycode = 0x22
	Key6           Keycode = 0x23
	Key7           Keycode = 0x24
	Key8           Keycode = 0x25
	Key9           Keycode = 0x26
	Key0           Keycode = 0x27
	KeyEnter       Keycode = 0x28
	KeyEscape      Keycode = 0x29
	KeyBackspace   Keycode = 0x2A
	KeyTab         Keycode = 0x2B
	KeySpace       Keycode = 0x2C
	KeyMinus       Keycode = 0x2D
	KeyEqual       Keycode = 0x2E
	KeyLeftBrace   Keycode = 0x2F
	KeyRightBrace  Keycode = 0x30
	KeyBackslash   Keycode = 0x31
	KeyNonUSHash   Keycode = 0x32
	KeySemicolon   Keycode = 0x33
	KeyQuote       Keycode = 0x34
	KeyGrave       Keycode = 0x35
	KeyComma       Keycode = 0x36
	KeyDot         Keycode = 0x37
	KeySlash       Keycode = 0x38
	KeyCapsLock    Keycode = 0x39
	KeyF1          Keycode = 0x3A
	KeyF2          Keycode = 0x3B
	KeyF3          Keycode = 0x3C
	KeyF4          Keycode = 0x3D
	KeyF5          Keycode = 0x3E
	KeyF6          Keycode = 0x3F
	KeyF7          Keycode = 0x40
	KeyF8          Keycode = 0x41
	KeyF9          Keycode = 0x42
	KeyF10         Keycode = 0x43
	KeyF11         Keycode = 0x44
	KeyF12         Keycode = 0x45
	KeyPrintScreen Keycode = 0x46
	KeyScrollLock  Keycode = 0x47
	KeyPause       Keycode = 0x48
	KeyInsert      Keycode = 0x49
	KeyHome        Keycode = 0x4A
	KeyPageUp      Keycode = 0x4B
	KeyDelete      Keycode = 0x4C
	KeyEnd         Keycode = 0x4D
	KeyPageDown    Keycode = 0x4E
	KeyRight       Keycode = 0x4F
	KeyLeft        Keycode = 0x50
	KeyDown        Keycode = 0x51
	KeyUp          Keycode = 0x52
	KeyNonUSSlash  Keycode = 0x64
	KeyVolumeUp    Keycode = 0x80
	KeyVolumeDown  Keycode = 0x81

	KeyLeftCtrl   Keycode = 0xE0
	KeyLeftShift  Keycode = 0xE1
	KeyLeftAlt    Keycode = 0xE2
	KeyLeftGUI    Keycode = 0xE3
	KeyRightCtrl  Keycode = 0xE4
	KeyRightShift Keycode = 0xE5
	KeyRightAlt   Keycode = 0xE6
	KeyRightGUI   Keycode = 0xE7

	// Vendor range used by common firmware for media control.
	KeyMediaPlayPause Keycode = 0xE8
	KeyMediaNextSong  Keycode = 0xEB
)

// IsModifier reports whether k is one of the eight modifier usages.
func (k Keycode) IsModifier() bool {
	return k >= KeyLeftCtrl && k <= KeyRightGUI
}

// ModifierBit returns k's bit in the report modifier byte, or 0 if k is not
// a modifier.
func (k Keycode) ModifierBit() uint8 {
	if !k.IsModifier() {
		return 0
	}
	return 1 << (k - KeyLeftCtrl)
}

var keyNames = []struct {
	name string
	code Keycode
}{
	{"A", KeyA}, {"B", KeyB}, {"C", KeyC}, {"D", KeyD}, {"E", KeyE},
	{"F", KeyF}, {"G", KeyG}, {"H", KeyH}, {"I", KeyI}, {"J", KeyJ},
	{"K", KeyK}, {"L", KeyL}, {"M", KeyM}, {"N", KeyN}, {"O", KeyO},
	{"P", KeyP}, {"Q", KeyQ}, {"R", KeyR}, {"S", KeyS}, {"T", KeyT},
	{"U", KeyU}, {"V", KeyV}, {"W", KeyW}, {"X", KeyX}, {"Y", KeyY},
	{"Z", KeyZ},
	{"Kb1", Key1}, {"Kb2", Key2}, {"Kb3", Key3}, {"Kb4", Key4}, {"Kb5", Key5},
	{"Kb6", Key6}, {"Kb7", Key7}, {"Kb8", Key8}, {"Kb9", Key9}, {"Kb0", Key0},
	{"Enter", KeyEnter}, {"Escape", KeyEscape}, {"BSpace", KeyBackspace},
	{"Tab", KeyTab}, {"Space", KeySpace}, {"Minus", KeyMinus}, {"Equal", KeyEqual},
	{"LBracket", KeyLeftBrace}, {"RBracket", KeyRightBrace},
	{"Bslash", KeyBackslash}, {"NonUsHash", KeyNonUSHash},
	{"SColon", KeySemicolon}, {"Quote", KeyQuote}, {"Grave", KeyGrave},
	{"Comma", KeyComma}, {"Dot", KeyDot}, {"Slash", KeySlash},
	{"CapsLock", KeyCapsLock},
	{"F1", KeyF1}, {"F2", KeyF2}, {"F3", KeyF3}, {"F4", KeyF4},
	{"F5", KeyF5}, {"F6", KeyF6}, {"F7", KeyF7}, {"F8", KeyF8},
	{"F9", KeyF9}, {"F10", KeyF10}, {"F11", KeyF11}, {"F12", KeyF12},
	{"PScreen", KeyPrintScreen}, {"ScrollLock", KeyScrollLock}, {"Pause", KeyPause},
	{"Insert", KeyInsert}, {"Home", KeyHome}, {"PgUp", KeyPageUp},
	{"Delete", KeyDelete}, {"End", KeyEnd}, {"PgDown", KeyPageDown},
	{"Right", KeyRight}, {"Left", KeyLeft}, {"Down", KeyDown}, {"Up", KeyUp},
	{"NonUsBslash", KeyNonUSSlash},
	{"VolUp", KeyVolumeUp}, {"VolDown", KeyVolumeDown},
	{"LCtrl", KeyLeftCtrl}, {"LShift", KeyLeftShift}, {"LAlt", KeyLeftAlt},
	{"LGui", KeyLeftGUI}, {"RCtrl", KeyRightCtrl}, {"RShift", KeyRightShift},
	{"RAlt", KeyRightAlt}, {"RGui", KeyRightGUI},
	{"MediaPlayPause", KeyMediaPlayPause}, {"MediaNextSong", KeyMediaNextSong},
}

var (
	byName = map[string]Keycode{}
	byCode = map[Keycode]string{}
)

func init() {
	for _, kn := range keyNames {
		byName[strings.ToLower(kn.name)] = kn.code
		byCode[kn.code] = kn.name
	}
	// Aliases matching the punctuation used in layout literals.
	for alias, code := range map[string]Keycode{
		";": KeySemicolon, ",": KeyComma, ".": KeyDot, "/": KeySlash,
		"-": KeyMinus, "=": KeyEqual, "'": KeyQuote, "`": KeyGrave,
		"[": KeyLeftBrace, "]": KeyRightBrace, "\\": KeyBackslash,
	} {
		byName[alias] = code
	}
}

// ParseKeycode looks up a keycode by name, case-insensitively. Names follow
// the layout literal vocabulary ("A", "Kb1", "LShift", "BSpace", ";").
func ParseKeycode(name string) (Keycode, bool) {
	k, ok := byName[strings.ToLower(name)]
	return k, ok
}

// String returns the keycode's layout name, or its hex value if unnamed.
func (k Keycode) String() string {
	if name, ok := byCode[k]; ok {
		return name
	}
	const hex = "0123456789abcdef"
	return "0x" + string([]byte{hex[k>>4], hex[k&0x0F]})
}
