package media

// BlendShapeNames lists the facial blend shapes in frame-vector order.
var BlendShapeNames = []string{
	"EyeBlinkLeft", "EyeLookDownLeft", "EyeLookInLeft", "EyeLookOutLeft", "EyeLookUpLeft",
	"EyeSquintLeft", "EyeWideLeft", "EyeBlinkRight", "EyeLookDownRight", "EyeLookInRight",
	"EyeLookOutRight", "EyeLookUpRight", "EyeSquintRight", "EyeWideRight", "JawForward",
	"JawLeft", "JawRight", "JawOpen", "MouthClose", "MouthFunnel",
	"MouthPucker", "MouthLeft", "MouthRight", "MouthSmileLeft", "MouthSmileRight",
	"MouthFrownLeft", "MouthFrownRight", "MouthDimpleLeft", "MouthDimpleRight", "MouthStretchLeft",
	"MouthStretchRight", "MouthRollLower", "MouthRollUpper", "MouthShrugLower", "MouthShrugUpper",
	"MouthPressLeft", "MouthPressRight", "MouthLowerDownLeft", "MouthLowerDownRight", "MouthUpperUpLeft",
	"MouthUpperUpRight", "BrowDownLeft", "BrowDownRight", "BrowInnerUp", "BrowOuterUpLeft",
	"BrowOuterUpRight", "CheekPuff", "CheekSquintLeft", "CheekSquintRight", "NoseSneerLeft",
	"NoseSneerRight", "TongueOut", "HeadRoll", "HeadPitch", "HeadYaw",
	"TongueTipUp", "TongueTipDown", "TongueTipLeft", "TongueTipRight", "TongueRollUp",
	"TongueRollDown", "TongueRollLeft", "TongueRollRight", "TongueUp", "TongueDown",
	"TongueLeft", "TongueRight", "TongueIn", "TongueStretch", "TongueWide",
	"TongueNarrow",
}

// Emotions lists the emotion channels in frame-vector order.
var Emotions = []string{
	"amazement", "anger", "cheekiness", "disgust", "fear", "grief",
	"joy", "outofbreath", "pain", "sadness", "neutral",
}

// SkeletonJointCount is the number of SMPL-X joints per pose frame; each joint
// contributes an axis-angle triple.
const SkeletonJointCount = 55

// PoseWidth is the length of one pose frame vector.
const PoseWidth = SkeletonJointCount * 3

// BlendShapeIndex returns the frame-vector position of a blend shape, or -1.
func BlendShapeIndex(name string) int {
	for i, n := range BlendShapeNames {
		if n == name {
			return i
		}
	}
	return -1
}

// EmotionIndex returns the frame-vector position of an emotion, or -1.
func EmotionIndex(name string) int {
	for i, n := range Emotions {
		if n == name {
			return i
		}
	}
	return -1
}
