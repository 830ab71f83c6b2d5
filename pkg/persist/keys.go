package persist

// Storage keys. Each value is a record of the form {"state": ..., "version": 0}.
const (
	KeyMessage         = "current-message"
	KeyMessageActions  = "current-message-actions"
	KeyCustomCommands  = "custom-commands-actions"
	KeySendSettings    = "send-settings"
	KeyCollapsedStates = "collapsed-states"
)

const recordVersion = 0
