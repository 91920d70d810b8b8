package store

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UnmarshalStreamImage decodes a DynamoDB stream NewImage/OldImage into out.
// The Lambda events package carries its own attribute value type, so the
// image is first translated to SDK attribute values and then unmarshalled
// with the same attributevalue codec used for reads.
func UnmarshalStreamImage(image map[string]events.DynamoDBAttributeValue, out interface{}) error {
	attrs := make(map[string]types.AttributeValue, len(image))
	for name, av := range image {
		converted, err := fromStreamAttribute(av)
		if err != nil {
			return fmt.Errorf("stream attribute %s: %w", name, err)
		}
		attrs[name] = converted
	}
	if err := attributevalue.UnmarshalMap(attrs, out); err != nil {
		return fmt.Errorf("unmarshal stream image: %w", err)
	}
	return nil
}

func fromStreamAttribute(av events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch av.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: av.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: av.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: av.Boolean()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: av.Binary()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: av.IsNull()}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: av.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: av.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: av.BinarySet()}, nil
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(av.List()))
		for i, element := range av.List() {
			converted, err := fromStreamAttribute(element)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			list = append(list, converted)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case events.DataTypeMap:
		m := make(map[string]types.AttributeValue, len(av.Map()))
		for name, element := range av.Map() {
			converted, err := fromStreamAttribute(element)
			if err != nil {
				return nil, fmt.Errorf("map key %s: %w", name, err)
			}
			m[name] = converted
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	}
	return nil, fmt.Errorf("unsupported attribute type %v", av.DataType())
}
