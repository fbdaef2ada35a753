package debug

const (
	Debug = true
)

func IsDebug() bool {
	return Debug
}

func IsDebugShowSetup() bool {
	return Debug && isDebugShowSetupSet()
}

func IsDebugGin() bool {
	return Debug && isDebugGinSet()
}
