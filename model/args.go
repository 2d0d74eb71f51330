package model

import "github.com/deephdc/demoapp/schema"

// Media types Predict can answer with.
const (
	AcceptJSON  = "application/json"
	AcceptZip   = "application/zip"
	AcceptImage = "image/*"
	AcceptAudio = "audio/*"
	AcceptVideo = "video/*"
)

// MediaFields are the file arguments of Predict, in response order.
var MediaFields = []string{"demo_image", "demo_audio", "demo_video"}

var mediaByAccept = map[string]string{
	AcceptImage: "demo_image",
	AcceptAudio: "demo_audio",
	AcceptVideo: "demo_video",
}

// TrainArgs declares the arguments of Train.
func TrainArgs() *schema.Schema {
	return trainArgs
}

// PredictArgs declares the arguments of Predict.
func PredictArgs() *schema.Schema {
	return predictArgs
}

var trainArgs = schema.MustNew("train",
	schema.Field{
		Name:        "epoch_num",
		Kind:        schema.Int,
		Default:     10,
		Min:         schema.Bound(1),
		Description: "Total number of training epochs",
	},
)

var predictArgs = schema.MustNew("predict",
	schema.Field{
		Name:        "demo_str",
		Kind:        schema.String,
		Default:     "some-string",
		Description: "Demo string argument",
	},
	schema.Field{
		Name:        "demo_str_choice",
		Kind:        schema.Enum,
		Default:     "choice2",
		Choices:     []string{"choice1", "choice2"},
		Description: "Demo string argument with choices",
	},
	schema.Field{
		Name:        "demo_int",
		Kind:        schema.Int,
		Default:     1,
		Description: "Demo integer argument",
	},
	schema.Field{
		Name:        "demo_int_range",
		Kind:        schema.Int,
		Default:     50,
		Min:         schema.Bound(1),
		Max:         schema.Bound(100),
		Description: "Demo integer argument with range",
	},
	schema.Field{
		Name:        "demo_float",
		Kind:        schema.Float,
		Default:     0.1,
		Description: "Demo float argument",
	},
	schema.Field{
		Name:        "demo_bool",
		Kind:        schema.Bool,
		Default:     true,
		Description: "Demo boolean argument",
	},
	schema.Field{
		Name:        "demo_dict",
		Kind:        schema.JSON,
		Default:     `{"a": 0, "b": 1}`,
		Description: "Demo dictionary argument, as a JSON string",
	},
	schema.Field{
		Name:        "demo_list_of_floats",
		Kind:        schema.FloatList,
		Default:     []float64{0.1, 0.2, 0.3},
		Description: "Demo list of floats argument",
	},
	schema.Field{
		Name:        "urls",
		Kind:        schema.URL,
		Description: "Provide an URL of the data for the prediction",
	},
	schema.Field{
		Name:        "demo_image",
		Kind:        schema.File,
		Required:    true,
		Description: "Image file",
	},
	schema.Field{
		Name:        "demo_audio",
		Kind:        schema.File,
		Required:    true,
		Description: "Audio file",
	},
	schema.Field{
		Name:        "demo_video",
		Kind:        schema.File,
		Required:    true,
		Description: "Video file",
	},
	schema.Field{
		Name:        "accept",
		Kind:        schema.Enum,
		Default:     AcceptJSON,
		Choices:     []string{AcceptJSON, AcceptZip, AcceptImage, AcceptAudio, AcceptVideo},
		Description: "Media type of the response",
		Location:    schema.Query,
	},
)
