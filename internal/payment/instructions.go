package payment

import "strings"

var InstructionMap = map[Method][]string{
	MethodCOD: {
		"Đơn hàng sẽ được giao đến địa chỉ của bạn",
		"Chuẩn bị sẵn {{amount}} tiền mặt khi shipper đến",
		"Thanh toán trực tiếp cho nhân viên giao hàng",
		"Giữ lại biên nhận sau khi thanh toán",
	},

	MethodBankTransfer: {
		"Mở ứng dụng ngân hàng hoặc Internet Banking",
		"Chuyển khoản đến {{bank_name}}, số tài khoản {{account_number}}",
		"Nhập chính xác số tiền {{amount}}",
		"Ghi nội dung chuyển khoản: {{reference}}",
		"Đơn hàng được xác nhận sau khi chúng tôi nhận được tiền",
	},
}

func GetInstructions(method Method) []string {
	if steps, ok := InstructionMap[method]; ok {
		return steps
	}
	return nil
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}
