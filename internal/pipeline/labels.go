package pipeline

// Task labels reported to observers.
const (
	TaskInitializing = "Initializing..."
	TaskPreparing    = "Preparing file..."
	TaskNoise        = "Generating noise..."
	TaskDCOffset     = "Bad DC offset, fixing it..."
	TaskEffects      = "Applying effects..."
	TaskMerging      = "Merging previous files..."
	TaskFinishing    = "Finishing file..."
	TaskIdle         = ""
)

// Stage names used in errors and logs.
const (
	StageStat    = "stat"
	StageDCShift = "dcshift"
	StageNoise   = "noise"
	StageEffects = "effects"
	StageMerge   = "merge"
)
