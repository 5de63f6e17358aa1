package validators

import "go.mongodb.org/mongo-driver/bson"

// BookingRequired lists the fields every stored booking document carries.
var BookingRequired = []string{
	"_id",
	"user_id",
	"court_id",
	"booking_date",
	"start_time",
	"end_time",
	"total_amount",
	"status",
	"created_at",
	"updated_at",
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             BookingRequired,
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"user_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"court_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"booking_date": bson.M{
				"bsonType": "date",
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"total_amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
